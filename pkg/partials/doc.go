/*
Package partials stores named mustache partials in SQLite.

A Store keeps one row per partial and can be plugged straight into a renderer
through Loader, which adapts it to mustache.PartialLoader. Stores can be
backed up and restored as JSON with Export and Import.
*/
package partials
