package memory

import (
	"github.com/hashicorp/go-memdb"

	"github.com/identity-tenancy-api/internal/models"
)

const (
	indexTenantUser   = "tenant_user"
	indexUsername     = "username"
	indexUser         = "user"
	indexCode         = "code"
	indexTarget       = "target"
	indexOwnerName    = "owner_name"
	indexTenantDSUser = "tenant_ds_user"
)

func idIndex(field string, str bool) *memdb.IndexSchema {
	var indexer memdb.Indexer = &memdb.IntFieldIndex{Field: field}
	if str {
		indexer = &memdb.StringFieldIndex{Field: field}
	}
	return &memdb.IndexSchema{Name: models.ColumnID, Unique: true, Indexer: indexer}
}

func stringIndex(name, field string) *memdb.IndexSchema {
	return &memdb.IndexSchema{Name: name, AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: field}}
}

func intIndex(name, field string) *memdb.IndexSchema {
	return &memdb.IndexSchema{Name: name, Indexer: &memdb.IntFieldIndex{Field: field}}
}

func compoundIndex(name string, indexers ...memdb.Indexer) *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:         name,
		AllowMissing: true,
		Indexer:      &memdb.CompoundIndex{Indexes: indexers, AllowMissing: true},
	}
}

func table(name string, indexes ...*memdb.IndexSchema) *memdb.TableSchema {
	ts := &memdb.TableSchema{Name: name, Indexes: map[string]*memdb.IndexSchema{}}
	for _, idx := range indexes {
		ts.Indexes[idx.Name] = idx
	}
	return ts
}

func dataSourceScoped(name string) *memdb.TableSchema {
	return table(name, idIndex("ID", false), intIndex(models.ColumnDataSourceID, "DataSourceID"))
}

func tenantScoped(name string) *memdb.TableSchema {
	return table(name, idIndex("ID", false), stringIndex(models.ColumnTenantID, "TenantID"))
}

// Schema mirrors the SQL schema; index names equal the SQL column names used by Purge.
func Schema() *memdb.DBSchema {
	tables := []*memdb.TableSchema{
		table(models.TableTenants, idIndex("ID", true)),
		table(models.TableValidityPeriodConfigs, idIndex("ID", false),
			&memdb.IndexSchema{Name: models.ColumnTenantID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "TenantID"}}),
		table(models.TableDisplayNameConfigs, idIndex("ID", false),
			&memdb.IndexSchema{Name: models.ColumnTenantID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "TenantID"}}),
		table(models.TableBuiltinFields, idIndex("ID", false)),
		tenantScoped(models.TableCustomFields),
		table(models.TableTenantManagers, idIndex("ID", false),
			stringIndex(models.ColumnTenantID, "TenantID"),
			compoundIndex(indexTenantUser,
				&memdb.StringFieldIndex{Field: "TenantID"},
				&memdb.StringFieldIndex{Field: "TenantUserID"})),
		table(models.TableCollaborationStrategies, idIndex("ID", false),
			stringIndex(models.ColumnSourceTenantID, "SourceTenantID"),
			stringIndex(models.ColumnTargetTenantID, "TargetTenantID")),
		tenantScoped(models.TableTenantCommonVariables),
		table(models.TableIdps, idIndex("ID", true),
			stringIndex(models.ColumnOwnerTenantID, "OwnerTenantID"),
			compoundIndex(indexOwnerName,
				&memdb.StringFieldIndex{Field: "OwnerTenantID"},
				&memdb.StringFieldIndex{Field: "Name"})),
		table(models.TableIdpSensitiveInfos, idIndex("ID", false), stringIndex(models.ColumnIdpID, "IdpID")),
		table(models.TableDataSources, idIndex("ID", false), stringIndex(models.ColumnOwnerTenantID, "OwnerTenantID")),
		table(models.TableDataSourceUsers, idIndex("ID", false),
			intIndex(models.ColumnDataSourceID, "DataSourceID"),
			compoundIndex(indexUsername,
				&memdb.IntFieldIndex{Field: "DataSourceID"},
				&memdb.StringFieldIndex{Field: "Username"})),
		table(models.TableLocalIdentityInfos, idIndex("ID", false),
			intIndex(models.ColumnDataSourceID, "DataSourceID"),
			compoundIndex(indexUser,
				&memdb.IntFieldIndex{Field: "DataSourceID"},
				&memdb.IntFieldIndex{Field: "UserID"})),
		dataSourceScoped(models.TableDataSourceDepartments),
		dataSourceScoped(models.TableDepartmentRelations),
		dataSourceScoped(models.TableDepartmentUserRelations),
		dataSourceScoped(models.TableUserLeaderRelations),
		dataSourceScoped(models.TableDataSourceSensitiveInfos),
		table(models.TableTenantUsers, idIndex("ID", true),
			stringIndex(models.ColumnTenantID, "TenantID"),
			intIndex(models.ColumnDataSourceID, "DataSourceID"),
			compoundIndex(indexTenantDSUser,
				&memdb.StringFieldIndex{Field: "TenantID"},
				&memdb.IntFieldIndex{Field: "DataSourceUserID"})),
		table(models.TableTenantDepartments, idIndex("ID", false),
			stringIndex(models.ColumnTenantID, "TenantID"),
			intIndex(models.ColumnDataSourceID, "DataSourceID")),
		table(models.TableTenantUserIDRecords, idIndex("ID", false),
			stringIndex(models.ColumnTenantID, "TenantID"),
			intIndex(models.ColumnDataSourceID, "DataSourceID"),
			compoundIndex(indexCode,
				&memdb.StringFieldIndex{Field: "TenantID"},
				&memdb.IntFieldIndex{Field: "DataSourceID"},
				&memdb.StringFieldIndex{Field: "Code"})),
		table(models.TableTenantDepartmentIDRecords, idIndex("ID", false),
			stringIndex(models.ColumnTenantID, "TenantID"),
			intIndex(models.ColumnDataSourceID, "DataSourceID")),
		table(models.TableTenantUserIDGenerateConfs, idIndex("ID", false),
			stringIndex(models.ColumnTargetTenantID, "TargetTenantID"),
			intIndex(models.ColumnDataSourceID, "DataSourceID"),
			compoundIndex(indexTarget,
				&memdb.StringFieldIndex{Field: "TargetTenantID"},
				&memdb.IntFieldIndex{Field: "DataSourceID"})),
		table(models.TableVirtualUserAppRelations, idIndex("ID", false),
			stringIndex(models.ColumnTenantID, "TenantID"),
			stringIndex(models.ColumnTenantUserID, "TenantUserID")),
		table(models.TableVirtualUserOwnerRelations, idIndex("ID", false),
			stringIndex(models.ColumnTenantID, "TenantID"),
			stringIndex(models.ColumnTenantUserID, "TenantUserID"),
			stringIndex(models.ColumnOwnerID, "OwnerID")),
		table(models.TableLegacyUsers, idIndex("Username", true)),
	}

	schema := &memdb.DBSchema{Tables: map[string]*memdb.TableSchema{}}
	for _, t := range tables {
		schema.Tables[t.Name] = t
	}
	return schema
}
