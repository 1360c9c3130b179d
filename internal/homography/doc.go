// Package homography provides the 3×3 projective transform used to map a
// video frame's image coordinates onto the ground plane, together with the
// pluggable estimators that fit one from point correspondences.
//
// Estimators are selected by name through Config, so the mapper can be
// configured with a nested estimator block instead of a concrete type.
// Two variants are registered by default: "dlt" (normalised direct linear
// transform over every pair) and "ransac" (robust consensus over minimal
// four-point samples, refined by DLT on the inliers).
package homography
