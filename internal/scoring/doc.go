// Package scoring turns a hotel's metadata and review history into the
// sparkling score. Everything here is a pure function of its inputs: the same
// hotel, reviews and weights always produce the same score.
//
// Both components share a 0-100 working scale. Review ratings are on a 0-10
// scale and are multiplied by 10 once averaged; metadata is normalized onto
// [20, 100] directly.
package scoring
