//go:build !nowebgpu

package main

import _ "github.com/LynnColeArt/saxpy/webgpu"
