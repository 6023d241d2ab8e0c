// Package programs manages a visitor's workout programs.
//
// The program list is read through the visitor's query cache under CacheKey,
// so concurrent page loads share one upstream request. Every successful
// mutation invalidates that key and the next read refetches. Generation can
// also run in the background (StartGenerate) while IsGenerating reports
// progress to the page.
package programs
