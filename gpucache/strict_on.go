//go:build gpucachestrict

package gpucache

const strictBounds = true
