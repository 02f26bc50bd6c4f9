// Copyright (c) HiveFlow Authors.
// Licensed under the MIT License.

/*
Package pipeline 实现单次管线运行的执行引擎。

每个顶层 Process 调用对应一个 Worker:它驱动一条 Agent 调用链,对每次
调用依次执行输入校验、任务处理、输出校验、可选的 LLM 路由覆盖,然后按
Outcome 的路由规则推进——Forward 交给下一个 Agent,Retry 退避后重入同
一个 Agent,Terminal 结束管线并把 (outcome, data) 返回给调用方。

链式推进以迭代循环实现(持有 current agent 与 current data,步进直到
Terminal 或致命错误),长管线不会耗尽栈。管线 ID 由进程级原子计数器
一次性分配,随数据原样传播。

单次调用的状态机:

	Idle → ValidatingInput → Running → ValidatingOutput →
	[LLMRouting?] → Routing → {Forward | Retry | Terminal | Error}

LLM 路由失败是唯一的非致命错误:记日志后沿用任务处理返回的 Outcome。
*/
package pipeline
