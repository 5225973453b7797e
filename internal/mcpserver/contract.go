package mcpserver

// ManifestFormatContract describes manifest.json for LLM consumers and
// downstream tooling.
const ManifestFormatContract = `# Fehu Manifest Format

A resolution pass writes ` + "`" + `manifest.json` + "`" + ` into the book's destination
directory. It is a JSON array of asset records, in the order the assets were
first referenced across chapters.

## Record

` + "```" + `json
{
  "location_on_disk": "/abs/path/to/src/images/logo.png",
  "filename": "images/logo.png",
  "mimetype": "image/png"
}
` + "```" + `

## Fields

1. **` + "`" + `location_on_disk` + "`" + `** is the canonical absolute path of the asset file.
   For remote images it points into the download cache.
2. **` + "`" + `filename` + "`" + `** is the logical path used when packaging the book:
   source-relative for local assets (forward slashes), ` + "`" + `cache/<name>` + "`" + ` for
   downloaded ones.
3. **` + "`" + `mimetype` + "`" + `** is guessed from the file extension;
   ` + "`" + `application/octet-stream` + "`" + ` when the extension is unknown.

## Rules

- Duplicate references to the same image appear once per reference; consumers
  that need uniqueness should key on ` + "`" + `filename` + "`" + `.
- Remote downloads are content-addressed by URL hash, so re-running a
  resolution never re-fetches a cached URL.
- A failed resolution writes no manifest at all; a present manifest is always
  complete.
`
