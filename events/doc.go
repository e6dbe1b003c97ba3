// Package events publishes task lifecycle events (submitted, completed,
// failed, rejected). With Kafka disabled the service uses Nop.
package events
