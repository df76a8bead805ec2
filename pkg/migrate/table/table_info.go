package table

import "context"

type Info struct {
	TableName    string `db:"table_name"`
	DatabaseName string `db:"db_name"`
}

type InfoSortBy string
type InfoSortByDirection string

const (
	// SortByNone keeps the order the catalog query returned
	SortByNone           InfoSortBy = ""
	SortByAlphaTableName InfoSortBy = "TableName"
)

const (
	SortDirectionASC  InfoSortByDirection = "ASC"
	SortDirectionDESC InfoSortByDirection = "DESC"
)

type FetchOptions struct {
	SortByCol       InfoSortBy
	SortByDirection InfoSortByDirection
}

type InfoFetcher interface {
	// All lists the base tables visible to the connected user
	All(ctx context.Context, f *FetchOptions) ([]*Info, error)
}
