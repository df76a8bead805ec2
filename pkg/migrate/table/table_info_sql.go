package table

import (
	"context"
	"database/sql"
	"sort"
)

// NewInfoFetcherSQL lists tables with a catalog query whose first column is
// the table name.
func NewInfoFetcherSQL(db *sql.DB, dbName string, query string) InfoFetcher {
	return &InfoFetcherSQL{
		source: db,
		dbName: dbName,
		query:  query,
	}
}

type InfoFetcherSQL struct {
	source *sql.DB
	dbName string
	query  string
}

func (m *InfoFetcherSQL) All(ctx context.Context, f *FetchOptions) ([]*Info, error) {
	var res []*Info

	rows, err := m.source.QueryContext(ctx, m.query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		ifo := Info{DatabaseName: m.dbName}
		if err := rows.Scan(&ifo.TableName); err != nil {
			return nil, err
		}
		res = append(res, &ifo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if f != nil && f.SortByCol == SortByAlphaTableName {
		desc := f.SortByDirection == SortDirectionDESC
		sort.SliceStable(res, func(i, j int) bool {
			if desc {
				return res[i].TableName > res[j].TableName
			}
			return res[i].TableName < res[j].TableName
		})
	}
	return res, nil
}

// Names flattens fetched infos.
func Names(infos []*Info) []string {
	names := make([]string, len(infos))
	for i, ifo := range infos {
		names[i] = ifo.TableName
	}
	return names
}
