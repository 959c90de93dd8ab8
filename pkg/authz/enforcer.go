package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// rbacModel 基于角色 + 路径通配 + 方法正则的访问控制模型
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// RoleAdmin 管理员角色
const RoleAdmin = "admin"

// defaultPolicies 内置策略
var defaultPolicies = [][]string{
	{RoleAdmin, "/api/v1/admin/queue", "GET"},
	{RoleAdmin, "/api/v1/admin/queue/medium", "GET"},
	{RoleAdmin, "/api/v1/admin/requests/:id/override", "PUT"},
	{RoleAdmin, "/api/v1/admin/requests/advance", "POST"},
	{RoleAdmin, "/api/v1/admin/export/queue", "GET"},
	{RoleAdmin, "/api/v1/auth/logout", "POST"},
}

// NewEnforcer 创建加载了内置策略的 casbin Enforcer
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("加载权限模型失败: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("初始化 Enforcer 失败: %w", err)
	}

	if _, err := e.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("加载权限策略失败: %w", err)
	}

	return e, nil
}
