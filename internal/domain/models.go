package domain

// Models AutoMigrate 的建表清单，连接表靠关联标签自动带出
func Models() []any {
	return []any{
		&User{},
		&Role{},
		&Permission{},
		&Company{},
		&CompanyUser{},
		&JobListing{},
		&Skill{},
		&EmploymentBenefit{},
		&Revision{},
	}
}
