// Copyright (c) HiveFlow Authors.
// Licensed under the MIT License.

/*
# 概述

包 schema 提供 Agent 输入/输出边界的声明式字段 Schema。

每个 Agent 以有序字段列表描述其输入与输出：字段名、类型
（string/integer/float/boolean/map/array/any）以及 required、default、
description 选项。校验是浅层结构化的：数组元素类型递归检查，map 不深入
递归，未声明的额外字段允许通过（向前兼容）。

# 主要类型

  - Field / FieldType — 单个字段描述符
  - Schema            — 有序字段集合，构造时做加载期校验
  - JSONSchema        — 翻译到结构化输出所需的 JSON Schema 子集

# 典型用法

	s, err := schema.New(
		schema.Field{Name: "language", Type: schema.TypeString, Required: true},
		schema.Field{Name: "name", Type: schema.TypeString, Default: "friend"},
	)
	if err := s.Validate(data); err != nil { // 处理校验错误 }
	data = s.MergeDefaults(data)

# 加载期拒绝

重复字段名、required 与 default 同时声明、未知类型、缺少元素类型的数组
均在 New 时报错，而不是推迟到运行期。
*/
package schema
