// Copyright (c) HiveFlow Authors.
// Licensed under the MIT License.

/*
Package router 实现 LLM 出口路由。

当 Agent 声明了 LLM 路由配置时,Worker 在任务处理与输出校验之后调用
Router.Decide:用配置的 prompt、按声明顺序列出的 Outcome 及其描述、
当前数据的 JSON 转储,以及"outcome 字段必须恰为声明名称之一"的约束
指令组装提示词,携带 LLMDecision 响应 Schema 发起一次结构化补全。

返回的 outcome 与声明名称做大小写精确匹配;任何不匹配(包括大小写或
空白差异)都是 LLM_ROUTER 错误。传输错误原样上抛。Decide 从不破坏性
修改数据:成功时返回追加了 llm_reasoning 的浅拷贝。
*/
package router
