// Package fuzztests houses Go fuzz harnesses for the Kt front end
// (source -> lexer -> parser -> formatter). They guard against panics,
// hangs and formatter output that no longer parses.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
