// Package corpus holds the on-disk interchange between pipeline steps.
//
// Layout under the output root:
//
//	text/<domain>/<sanitized-url>.txt   one file per crawled page
//	processed/<domain>.csv              collated table: index,title,text
//	processed/<domain>-tokens.csv       chunk table: index,text,n_tokens
//
// Tables are CSV with a leading unnamed index column, the shape pandas
// writes and reads, so existing downstream tooling keeps working.
package corpus
