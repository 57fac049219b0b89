// Package workload drives an alarm queue with concurrent producers and
// consumers and verifies what comes out the other end.
//
// A run sends a configured number of messages per producer, optionally adds
// alarms on a cron schedule, drains the queue and returns a Report listing
// duplicates, losses and ordering violations. The scripted scenarios mirror
// the queue's documented behaviour step by step.
package workload
