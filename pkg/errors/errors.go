package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrInvalidArgument 参数不合法（评分、档位、枚举值越界等），Handler 层统一映射为 400
var ErrInvalidArgument = errors.New("参数不合法")
