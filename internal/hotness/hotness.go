// Package hotness tracks how often each covering key is requested.
package hotness

type Interface interface {
	Inc(key string)
	Score(key string) float64
	Reset(keys ...string)
}
