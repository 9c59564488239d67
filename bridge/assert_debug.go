//go:build gcbridge_debug

package bridge

const debugAssertions = true
