/*
Package ports defines the driven ports (interfaces) of the triage walker.

These interfaces decouple the core traversal logic from external implementations, so the
same controller can read decision data from CSV, SQLite or memory, persist sessions in
memory, SQLite or Redis, and render through a terminal, a web page or an MCP client.

# Key Interfaces

  - TableSource: yields raw rows of the "questions" and "prompts" tables.
  - StateStore: persists and loads per-session State.
  - DistributedLocker: serializes access to one session across replicas.
  - Presenter: displays nodes and surfaces per-session errors.
*/
package ports
