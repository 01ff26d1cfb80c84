// Package corpus loads pre-chunked passage fixtures into a corpus backend.
//
// Fixtures are JSON Lines files, one passage per line:
//
//	{"id":"c1","parent_id":"p1","document_id":"doc_A","page":22,
//	 "text":"...","context_text":"...",
//	 "entities":[{"name":"Acme","type":"organization"}]}
//
// Passages are embedded in batches and written with their entity
// annotations, which feed the keyword and graph indexes. A load is named;
// the committed record count is checkpointed after every batch so an
// interrupted load resumes where it stopped.
package corpus
