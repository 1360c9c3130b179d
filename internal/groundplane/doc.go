// Package groundplane registers video frames onto a common ground-plane
// coordinate frame.
//
// A Mapper keeps one TrackExtension per feature track it has seen: the
// track's location on the ground plane, whether that location is known, and
// whether the track currently agrees with the estimated homography. Each
// call to Measure ages the registry against the frame's active tracks,
// selects correspondences between ground-plane references and current
// observations, fits a homography with the configured estimator, updates
// track quality from back-projection error, seeds references for new tracks,
// and appends the frame's homography to the output Collection.
//
// Frames with too few usable correspondences, or whose estimate fails, add
// nothing to the Collection; FrameStats records why.
package groundplane
