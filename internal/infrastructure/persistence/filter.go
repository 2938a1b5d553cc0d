package persistence

import (
	"strings"

	"gorm.io/gorm"

	"github.com/fieldstock/backend/internal/domain/shared"
)

// sortableColumns lists the columns an API caller may order by. Anything
// else falls back to created_at to keep raw column names out of the query.
var sortableColumns = map[string]bool{
	"created_at":         true,
	"updated_at":         true,
	"sku":                true,
	"name":               true,
	"challan_number":     true,
	"status":             true,
	"deployed_date":      true,
	"available_quantity": true,
}

// applyFilter applies pagination and ordering from the filter
func applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := filter.OrderBy
	if !sortableColumns[orderBy] {
		orderBy = "created_at"
	}
	orderDir := "ASC"
	if strings.ToLower(filter.OrderDir) == "desc" || filter.OrderBy == "" {
		orderDir = "DESC"
	}
	return query.Order(orderBy + " " + orderDir)
}

// paginate runs the count plus find pair every listing endpoint needs and
// wraps the result. dest must be a pointer to a slice.
func paginate[T any](query *gorm.DB, filter shared.Filter, dest *[]T) (*shared.Paginated[T], error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := applyFilter(query.Session(&gorm.Session{}), filter).Find(dest).Error; err != nil {
		return nil, err
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = len(*dest)
		if pageSize == 0 {
			pageSize = 1
		}
	}
	result := shared.NewPaginated(*dest, total, page, pageSize)
	return &result, nil
}
