// Package jobs owns the lifecycle of render jobs.
//
// Registry is the single writer of job state: it persists transitions
// (Create, Claim, Advance, Complete, Fail) through the queue store and
// publishes every transition as an Event. Events reach listeners two ways:
// Subscribe hands out a channel that receives events as they happen, and
// Events serves sequence-numbered history for long-polling HTTP clients.
package jobs
