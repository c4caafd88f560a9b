// Package modemtest provides a scripted fake modem and a fake clock for
// exercising the command executor and everything built on it without
// hardware or real time.
package modemtest
