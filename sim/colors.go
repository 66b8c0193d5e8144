package sim

import "image/color"

var plotColors = []color.Color{
	color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff},
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
}
