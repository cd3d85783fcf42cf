package services

import "log"

// Notifier is the fire-and-forget toast channel. Implementations must never
// block or fail a cart operation.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type LogNotifier struct{}

func (LogNotifier) Success(message string) {
	log.Printf("[toast] %s", message)
}

func (LogNotifier) Error(message string) {
	log.Printf("[toast] error: %s", message)
}
