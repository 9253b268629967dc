// Package phpscan finds doc comments in PHP source and feeds them to an
// annotation [Extractor].
//
// [Scan] is not a PHP parser. It tracks strings, heredocs, comments and
// braces well enough to locate every doc comment together with the namespace
// and use statements in effect where it appears:
//
//	f := phpscan.Scan(src)
//	for _, c := range f.Comments {
//	    fmt.Println(c.Line, c.Namespace, c.Text)
//	}
//
// [Analyse] runs an extractor over one file, and [AnalyseFiles] over many
// files concurrently:
//
//	paths, err := phpscan.Collect([]string{"src"}, "vendor")
//	results, err := phpscan.AnalyseFiles(ctx, analyser.New(), paths, 8)
//
// Malformed annotations never fail a scan. They are reported by the
// extractor, with their line in the PHP file.
package phpscan
