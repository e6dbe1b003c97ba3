// Package subtitle renders transcript segments as SRT or WebVTT.
package subtitle
