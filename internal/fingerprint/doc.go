// Package fingerprint derives content identities for images and videos.
//
// Images get a perceptual average hash: grayscale, Lanczos resample to a
// square compare size, then one bit per pixel against the mean intensity.
// Re-encoded or rescaled copies of the same picture produce matching keys.
// Videos get an exact SHA-256 over streamed chunks, so only byte-identical
// copies match.
//
// Similarity compares two fingerprints of the same shape and reports the
// percentage of agreeing bits.
package fingerprint
