// Package rule stores mapping conditions in settings stores and evaluates them
// with a pluggable expression engine (expr, CEL, or JavaScript with the
// js_eval build tag).
package rule
