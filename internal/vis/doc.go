// Package vis draws detector output onto images for visual debugging.
//
// Boxes are given in pixel coordinates (x1, y1, x2, y2), rounded half to
// even, and drawn as 1-pixel rectangles whose edges are included. Boxes that
// extend past the image are clipped. Images that implement draw.Image are
// drawn on in place; any other image is first copied to *image.NRGBA.
package vis
