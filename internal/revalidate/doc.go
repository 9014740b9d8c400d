// Package revalidate holds the building blocks of diagnostic revalidation:
// per-file cancellation, debounced scheduling, the publication gate,
// activity tracking and the ordering of affected files.
//
// Пакет ничего не знает о том, как считаются диагностики: он только
// решает, что, когда и можно ли публиковать.
package revalidate
