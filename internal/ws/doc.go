// Package ws connects browser frontends to the terminal session over
// WebSocket.
//
// The frontend owns the rendered terminal widget and reports its cell
// metrics, selection and window size; the server owns the session
// lifecycle, geometry decisions and key chord handling. Geometry
// directives flow server to client, input and widget state flow client to
// server. A single hub fans output out to every attached client.
package ws
