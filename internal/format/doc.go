// Package format renders Kt trees back to source text.
//
// Назначение: печать файлов после inline-правок и команда `splice fmt`.
// Узлы, которые не менялись с момента разбора, копируются из исходника
// (с переиндентацией), остальные печатаются канонически: 4 пробела,
// скобки по приоритетам, комментарии из Leading/Trailing.
// Не делает: IO и разбор конфигурации.
package format
