package engine

/*

The engine turns a field definition tree into something queries can be
built from. Three steps, each usable on its own:

1. Compile the tree into a Schema

	schema := CompileSchema(root, DefaultMaxLevel)

Every field becomes a Node keyed by its effective name (populateData.path
wins over name). Embedded documents become ObjectNodes with their own
Schema, arrays of embedded documents become ArrayNodes of ObjectNodes.
Nothing is ever rejected here: unknown types, computations and field groups
accept anything, embedded documents past the depth limit accept anything,
and an embedded document with no populated fields accepts an array of
anything (kept as is, callers rely on the shape).

2. Ask the Schema what can be queried

	abilities := DeriveQueryAbilities(schema, Unbounded)

	{
	"name":           {"type": "string",   "supportedOperators": ["eq","ne","in","nin","regex","search"]},
	"address.city":   {"type": "string",   ...},
	"tags":           {"type": "object[]", "supportedOperators": ["eq"]},
	"tags.label":     {"type": "string",   ...}
	}

Objects are flattened into dotted paths. Arrays of objects stay a leaf and
their element fields are listed under the array path as well.

3. Lower one condition into a filter fragment

	CompileQueryFragment("status", "in", "active,pending", TypeString)
	=> {"status": {"$in": ["active", "pending"]}}

	CompileQueryFragment("tags", "search", "go", TypeStringArray)
	=> {"tags": {"$elemMatch": {"$regex": "go", "$options": "i"}}}

Combining fragments into a full filter ($and / $or) is left to the caller.

*/
