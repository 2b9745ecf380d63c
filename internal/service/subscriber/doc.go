// Package subscriber manages the subscriber list: manual add/remove and the
// token-driven unsubscribe flow used by email footer links.
package subscriber
