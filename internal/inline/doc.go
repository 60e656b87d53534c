// Package inline встраивает тело функции или свойства в места вызова.
//
// Конвейер для одного места вызова:
//
//	PrepareTemplate -> Bind -> Splice -> PostProcess -> Finish
//
// PrepareTemplate строит CodeTemplate один раз на декларацию. Bind делает
// приватную копию шаблона и подставляет receiver, параметры и
// type-параметры. Splice переносит результат в дерево по форме места
// вызова. PostProcess прогоняет проходы очистки, Finish сокращает ссылки и
// сбрасывает маркеры.
//
// Служебные пометки хранятся в Markers: таблице, ключом которой является
// ast.NodeID. Таблица подписана на копирование узлов, поэтому пометки
// переезжают на копии вместе с узлами.
package inline
