//go:build !evodebug

package evolution

const debugAssertions = false
