// Package kernel holds the coverage kernels, one per primitive kind.
//
// Every brush follows the same contract: the vertex stage decodes the
// primitive and places its quad, the fragment stage returns a
// premultiplied color, and the result is multiplied by the clip mask in
// the alpha pass. Blur, split composite and the clip-mask kernels cover
// render-task rects instead of primitive rects.
//
// A kernel is selected once per batch with [Build]: a closed [Kind] plus
// a [Variant] bit set picks one fixed implementation. The bound kernel
// is a [raster.Kernel] run by [raster.Executor].
//
// Records are written by the frame builder with the Encode methods of
// the record types in this package and read back through the pass
// snapshot in [Resources].
package kernel
