package stagecheck

// CountQuery is one compared table with its statement on each side.
//
// Production statements address the "published" database, staging statements
// the "postgres" database; both live in the public schema. The statements are
// fixed and take no parameters.
type CountQuery struct {
	Table      string
	Production string
	Staging    string
}

// SQL returns the statement to run on side.
func (q CountQuery) SQL(side Side) string {
	if side == Staging {
		return q.Staging
	}
	return q.Production
}

var countQueries = []CountQuery{
	{
		Table:      "ft_d_market",
		Production: "select count(*) as count_target from published.public.ft_d_market",
		Staging:    "select count(*) as count_target from postgres.public.ft_d_market",
	},
	{
		Table:      "ft_d_hfb",
		Production: "select count(*) as count_target from published.public.ft_d_hfb",
		Staging:    "select count(*) as count_target from postgres.public.ft_d_hfb",
	},
	{
		Table:      "ft_d_version",
		Production: "select count(*) as count_target from published.public.ft_d_version",
		Staging:    "select count(*) as count_target from postgres.public.ft_d_version",
	},
	{
		Table:      "ft_d_view",
		Production: "select count(*) as count_target from published.public.ft_d_view",
		Staging:    "select count(*) as count_target from postgres.public.ft_d_view",
	},
	{
		// Report rows that resolve to a known (view, version).
		Table: "ft_f_report_market",
		Production: "select count(*) as source_count from ( select fct.view,object,fct.version,market,measures::text" +
			" from public.ft_f_report_market fct inner join public.ft_d_version ver" +
			" on fct.view = ver.view and fct.version = ver.version order by fct.view ) count_table",
		Staging: "select count(*) as source_count from ( select fct.view,object,fct.version,market,measures::text" +
			" from postgres.public.ft_f_report_market fct inner join postgres.public.ft_d_version ver" +
			" on fct.view = ver.view and fct.version = ver.version order by fct.view ) count_table",
	},
}

// Queries returns a copy of the compared tables in check order.
func Queries() []CountQuery {
	out := make([]CountQuery, len(countQueries))
	copy(out, countQueries)
	return out
}
