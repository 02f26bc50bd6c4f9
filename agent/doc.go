// Copyright (c) HiveFlow Authors.
// Licensed under the MIT License.

/*
Package agent 提供 Agent 的静态定义与注册表。

一个 Definition 描述一个处理单元:输入/输出 Schema、按声明顺序排列的
命名 Outcome(每个 Outcome 绑定一条路由规则)、任务处理函数,以及可选
的 LLM 路由配置。Definition 在 Build 后不可变,运行期由 pipeline 包的
Worker 消费。

路由目标以 Agent 名称表达,在路由时通过 Registry 解析。这使自环
(Forward 指向自身)与任意构造顺序的循环图都可以表达。

# 典型用法

	def, err := agent.NewBuilder("greeter").
		Input(
			schema.Field{Name: "language", Type: schema.TypeString, Required: true},
			schema.Field{Name: "name", Type: schema.TypeString, Default: "friend"},
		).
		Output(schema.Field{Name: "greeting", Type: schema.TypeString, Required: true}).
		Outcome("supported_language", agent.ForwardTo("formatter")).
		Outcome("unsupported_language", agent.Terminate()).
		Handle(greet).
		Build()

	reg := agent.NewRegistry()
	reg.MustRegister(def)
*/
package agent
