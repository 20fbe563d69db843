// Package kb stores knowledge base artifacts on the local filesystem.
//
// Layout under the knowledge base directory:
//
//	crawl_report.json              page manifest written by the crawler
//	CURRENT                        name of the version in service
//	versions/<version>/
//	    embeddings.index           flat inner-product index
//	    docstore.json              row key -> chunk
//	    manifest.json              version, model, dimensions, count
//
// A version is written into a staging directory, renamed into place and
// only then made current by atomically replacing CURRENT. Readers follow
// CURRENT, so they see the old pair or the new pair and never a mix.
// The current version and its predecessor are kept; older ones are pruned.
package kb
