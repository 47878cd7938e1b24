// Package ingest turns user input into something the notes stage can consume.
//
// Files are classified as DOCX, PDF, TXT, or unsupported using the declared
// media type and extension, with content sniffing (gabriel-vasile/mimetype)
// when the caller declares nothing useful. DOCX text is extracted locally with
// unioffice; PDF and TXT bytes are forwarded untouched as a Document whose
// DataURI is sent to the model. Pasted text bypasses classification entirely.
//
// DocumentText offers local extraction for PDF (ledongthuc/pdf) and TXT so
// text-only LLM backends can still process those uploads.
package ingest
