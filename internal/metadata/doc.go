/*
Package metadata recovers prompt text embedded in generated images.

Sources, chosen by file extension:
  - PNG: tEXt, zTXt and iTXt chunks (the "parameters" key holds the prompt),
    plus the UserComment of an eXIf chunk
  - JPEG and WebP: the EXIF UserComment tag

Raw bytes go through DecodeText, an ordered ladder that always produces
text:

 1. strip the 8-byte EXIF character code; for "UNICODE" try UTF-16BE then
    UTF-16LE, rejecting anything malformed
 2. the same two byte orders, dropping invalid sequences
 3. UTF-8, with or without BOM
 4. Shift_JIS
 5. UTF-8, dropping invalid sequences

The decoded prompt is split by Segment into a Triple of positive prompt,
negative prompt and generation info.

Parser.Extract returns a Result whose Kind separates parsed metadata, files
without any metadata, and unreadable files. CachedExtractor adds a
persistent cache in front of any Extractor.
*/
package metadata
