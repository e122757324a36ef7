package domain

// WithFindProjection specifies which fields to include or exclude from query
// results.
func WithFindProjection(p Document) FindOption {
	return func(fo *FindOptions) {
		fo.Projection = p
	}
}

// WithFindSkip sets the number of documents to skip in query results.
func WithFindSkip(s int64) FindOption {
	return func(fo *FindOptions) {
		fo.Skip = s
	}
}

// WithFindLimit sets the maximum number of documents to return.
func WithFindLimit(l int64) FindOption {
	return func(fo *FindOptions) {
		fo.Limit = l
	}
}

// WithFindSort specifies the sort order for query results.
func WithFindSort(s Sort) FindOption {
	return func(fo *FindOptions) {
		fo.Sort = s
	}
}

// FindOption configures query behavior through the functional options pattern.
type FindOption func(*FindOptions)

// FindOptions contains parameters for customizing query execution.
type FindOptions struct {
	// Projection specifies which fields to include (1) or exclude (0) from
	// results.
	Projection Document
	// Skip specifies the number of documents to skip.
	Skip int64
	// Limit specifies the maximum number of documents to return. Zero
	// means no limit.
	Limit int64
	// Sort specifies the sort order for results.
	Sort Sort
}

// NewFindOptions applies opts over empty [FindOptions].
func NewFindOptions(opts ...FindOption) FindOptions {
	var fo FindOptions
	for _, opt := range opts {
		opt(&fo)
	}
	return fo
}

// WithUpdateMulti enables updating multiple documents that match the query.
func WithUpdateMulti(m bool) UpdateOption {
	return func(uo *UpdateOptions) {
		uo.Multiple = m
	}
}

// WithUpsert enables inserting a document if no matches are found.
func WithUpsert(u bool) UpdateOption {
	return func(uo *UpdateOptions) {
		uo.Upsert = u
	}
}

// WithUpdateWriteConcern overlays wc on the write concern of the update.
func WithUpdateWriteConcern(wc WriteConcern) UpdateOption {
	return func(uo *UpdateOptions) {
		uo.WriteConcern = uo.WriteConcern.Overlay(wc)
	}
}

// UpdateOption configures update behavior through the functional options
// pattern.
type UpdateOption func(*UpdateOptions)

// UpdateOptions contains parameters for customizing update operations.
type UpdateOptions struct {
	WriteConcern WriteConcern
	// Multiple enables updating multiple documents that match the query.
	Multiple bool
	// Upsert enables inserting a document if no matches are found.
	Upsert bool
}

// WithJustOne limits a removal to the first matching document.
func WithJustOne(j bool) RemoveOption {
	return func(ro *RemoveOptions) {
		ro.JustOne = j
	}
}

// WithRemoveWriteConcern overlays wc on the write concern of the removal.
func WithRemoveWriteConcern(wc WriteConcern) RemoveOption {
	return func(ro *RemoveOptions) {
		ro.WriteConcern = ro.WriteConcern.Overlay(wc)
	}
}

// RemoveOption configures remove behavior through the functional options
// pattern.
type RemoveOption func(*RemoveOptions)

// RemoveOptions contains parameters for customizing remove operations.
type RemoveOptions struct {
	WriteConcern WriteConcern
	// JustOne removes at most one document.
	JustOne bool
}

// CountOptions contains parameters for customizing count operations.
type CountOptions struct {
	Skip  int64
	Limit int64
}
