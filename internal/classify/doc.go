// Package classify turns batches of file descriptions into relocation
// suggestions using an OpenAI-compatible chat completion API.
//
// A Chain of providers gives graceful degradation: the primary model is tried
// first and each configured fallback in turn, so one provider outage does not
// stop a run. Responses are decoded tolerantly because models wrap JSON in
// code fences and prose more often than they should.
package classify
