package mcpserver

// RecordFormatContract describes the care-record and growth shapes that
// LLM consumers should use when adding or reading records.
const RecordFormatContract = `# Cradle Record Format

Every care record is a JSON object with this structure.

## Care record

` + "```" + `json
{
  "id": "5f0c…",                       // assigned by the server
  "kind": "FEED",                      // SLEEP | FEED | ELIMINATION | BATH
  "start_time": "2024-07-02T09:30:00Z",
  "end_time": "2024-07-02T10:00:00Z",  // SLEEP and BATH only; absent while ongoing
  "feed": {"type": "FORMULA", "amount": 120},
  "elimination": {"type": "STOOL"},
  "note": "free text"
}
` + "```" + `

## Rules

1. **kind is a closed set.** Anything outside SLEEP, FEED, ELIMINATION, BATH is rejected.
2. **Payload follows kind.** FEED requires ` + "`" + `feed` + "`" + `, ELIMINATION requires
   ` + "`" + `elimination` + "`" + `. SLEEP and BATH carry neither.
3. **Feed units come from the type:** BREAST is minutes, FORMULA is milliliters,
   SOLID is grams.
4. **Ongoing intervals** have no ` + "`" + `end_time` + "`" + `. On a day chart they run to midnight.
5. **end_time before start_time** is stored as written and reported as ` + "`" + `anomalous` + "`" + `.
   Durations are never computed for such records.
6. **Days and weeks** are local calendar days. Weeks run Monday to Sunday.

## Quick add

The ` + "`" + `quick_add` + "`" + ` tool takes a kind and, for FEED and ELIMINATION, a subtype
(` + "`" + `BREAST` + "`" + `, ` + "`" + `FORMULA` + "`" + `, ` + "`" + `SOLID` + "`" + `, ` + "`" + `URINE` + "`" + `, ` + "`" + `STOOL` + "`" + `). The record starts now.

## Growth

One measurement per date (` + "`" + `YYYY-MM-DD` + "`" + `) with optional ` + "`" + `height_cm` + "`" + `,
` + "`" + `weight_kg` + "`" + ` and ` + "`" + `head_circumference_cm` + "`" + `. Metrics are named ` + "`" + `height` + "`" + `,
` + "`" + `weight` + "`" + ` and ` + "`" + `head` + "`" + `. Percentile bands are ` + "`" + `<p3` + "`" + `, ` + "`" + `p3–p15` + "`" + `,
` + "`" + `p15–p50` + "`" + `, ` + "`" + `p50–p85` + "`" + `, ` + "`" + `p85–p97` + "`" + ` and ` + "`" + `>p97` + "`" + `; a value equal to a
threshold falls in the lower band.

## Stool photos

Send ` + "`" + `scan_stool_photo` + "`" + ` a base64 ` + "`" + `data:` + "`" + ` URI or an http(s) URL of a png, jpeg,
gif or webp image. A successful scan logs an ELIMINATION/STOOL record with the
note ` + "`" + `AI scan: color, firmness, label` + "`" + `.
`
