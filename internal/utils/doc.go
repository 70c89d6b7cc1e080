// Package utils carries cross-command plumbing: the viper-backed
// configuration loader, the zap logger factory, flushing writers for
// progress output, and command context accessors.
package utils
