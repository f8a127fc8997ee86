// Package file provides the default snapshot store: plain files under the
// data directory.
//
// Layout:
//
//	<data_dir>/processed/all_chunks.json   corpus, array of chunks
//	<data_dir>/embeddings/embeddings.npy   (N, D) float32 matrix, NumPy v1.0
//	<data_dir>/embeddings/metadata.json    per-row index entries
//
// The .npy file can be opened directly with numpy.load.
// Every file is written to a temporary sibling and renamed into place.
package file
