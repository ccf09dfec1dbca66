package models

// Table names shared by the SQL schema and the in-memory store.
const (
	TableTenants                   = "tenants"
	TableValidityPeriodConfigs     = "tenant_user_validity_period_configs"
	TableDisplayNameConfigs        = "tenant_user_display_name_expression_configs"
	TableBuiltinFields             = "user_builtin_fields"
	TableCustomFields              = "tenant_user_custom_fields"
	TableTenantManagers            = "tenant_managers"
	TableCollaborationStrategies   = "collaboration_strategies"
	TableTenantCommonVariables     = "tenant_common_variables"
	TableIdps                      = "idps"
	TableIdpSensitiveInfos         = "idp_sensitive_infos"
	TableDataSources               = "data_sources"
	TableDataSourceUsers           = "data_source_users"
	TableLocalIdentityInfos        = "local_data_source_identity_infos"
	TableDataSourceDepartments     = "data_source_departments"
	TableDepartmentRelations       = "data_source_department_relations"
	TableDepartmentUserRelations   = "data_source_department_user_relations"
	TableUserLeaderRelations       = "data_source_user_leader_relations"
	TableDataSourceSensitiveInfos  = "data_source_sensitive_infos"
	TableTenantUsers               = "tenant_users"
	TableTenantDepartments         = "tenant_departments"
	TableTenantUserIDRecords       = "tenant_user_id_records"
	TableTenantDepartmentIDRecords = "tenant_department_id_records"
	TableTenantUserIDGenerateConfs = "tenant_user_id_generate_configs"
	TableVirtualUserAppRelations   = "virtual_user_app_relations"
	TableVirtualUserOwnerRelations = "virtual_user_owner_relations"
	TableLegacyUsers               = "legacy_users"
)

// Columns used to scope purges.
const (
	ColumnID             = "id"
	ColumnTenantID       = "tenant_id"
	ColumnOwnerTenantID  = "owner_tenant_id"
	ColumnSourceTenantID = "source_tenant_id"
	ColumnTargetTenantID = "target_tenant_id"
	ColumnDataSourceID   = "data_source_id"
	ColumnIdpID          = "idp_id"
	ColumnTenantUserID   = "tenant_user_id"
	ColumnOwnerID        = "owner_id"
)
