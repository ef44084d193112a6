// Package daemon ties the store and driver into a single lifecycle with
// flock-based locking so only one seedvault instance works a given data
// directory at a time.
package daemon
