/*
Package templating serves mustache templates from a directory on disk.

A TemplateManager loads every full template and partial from
<dataDir>/templates, compiles them once so that broken files are reported at
load time, and renders them by name. Partials are looked up on disk first and
then in an optional PartialLoader such as a partials.Store. The directory can
be changed at runtime through WriteTemplateFile and RemoveTemplateFile, or by
editing files and calling Refresh.
*/
package templating
