/*
Package schema describes the editable fields of a content block type.

A block type declares the shape of its stored data either by returning a Go
prototype from Schema() or by supplying an explicit field list through the
block.MetadataProvider capability. Both routes end up as a []Field tree:

	[]Field{
	    {Name: "title", Kind: KindString, Required: true},
	    {Name: "meta", Kind: KindObject, Children: []Field{
	        {Name: "count", Kind: KindInteger, Required: true},
	    }},
	    {Name: "images", Kind: KindArray, Items: []Field{
	        {Name: "media_id", Kind: KindString, Required: true},
	    }},
	}

# Kinds

  - string, integer, number, boolean: scalar values
  - object, group: a nested map described by Children
  - array, list:   a sequence of maps, each described by Items
  - mixed:         anything; never recursed into

Prototype introspection goes through github.com/invopop/jsonschema, so the
usual json and jsonschema struct tags apply. A field without omitempty is
required.
*/
package schema
